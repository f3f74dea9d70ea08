package returns

// ReturnCategory represents the kind of materials return.
// The category determines movement direction and the approval path,
// and is a closed set: movement resolution switches over it exhaustively.
type ReturnCategory string

const (
	// CategoryCustomer is a return of sold goods coming back from a customer
	CategoryCustomer ReturnCategory = "CUSTOMER"
	// CategorySupplier is a return of purchased goods going back to a supplier
	CategorySupplier ReturnCategory = "SUPPLIER"
	// CategoryInternal is a return between internal locations
	CategoryInternal ReturnCategory = "INTERNAL"
)

// IsValid checks if the category is a valid ReturnCategory
func (c ReturnCategory) IsValid() bool {
	switch c {
	case CategoryCustomer, CategorySupplier, CategoryInternal:
		return true
	}
	return false
}

// String returns the string representation of ReturnCategory
func (c ReturnCategory) String() string {
	return string(c)
}

// CodePrefix returns the stable document-code prefix for the category
func (c ReturnCategory) CodePrefix() string {
	switch c {
	case CategoryCustomer:
		return "RET-CUST"
	case CategorySupplier:
		return "RET-SUPP"
	case CategoryInternal:
		return "RET-INT"
	}
	return "RET"
}

// AutoApproves returns true when returns of this category skip manual approval
func (c ReturnCategory) AutoApproves() bool {
	return c == CategoryInternal
}

// SourceDocumentType represents the document a return references
type SourceDocumentType string

const (
	// SourceDocumentSale references a sales document
	SourceDocumentSale SourceDocumentType = "SALE"
	// SourceDocumentPurchase references a purchase document
	SourceDocumentPurchase SourceDocumentType = "PURCHASE"
	// SourceDocumentIssue references an internal issue document
	SourceDocumentIssue SourceDocumentType = "ISSUE"
)

// IsValid checks if the source document type is valid
func (t SourceDocumentType) IsValid() bool {
	switch t {
	case SourceDocumentSale, SourceDocumentPurchase, SourceDocumentIssue:
		return true
	}
	return false
}

// String returns the string representation of SourceDocumentType
func (t SourceDocumentType) String() string {
	return string(t)
}
