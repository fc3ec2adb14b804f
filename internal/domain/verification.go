package domain

// DocumentType identifies one of the documents required for driver verification.
type DocumentType string

const (
	DocumentLicenseFront DocumentType = "license-front"
	DocumentLicenseBack  DocumentType = "license-back"
	DocumentSelfie       DocumentType = "selfie"
)

// RequiredDocuments lists every document a driver must provide.
var RequiredDocuments = []DocumentType{DocumentLicenseFront, DocumentLicenseBack, DocumentSelfie}

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentLicenseFront, DocumentLicenseBack, DocumentSelfie:
		return true
	}
	return false
}

// VerificationStatus is the review state of submitted documents.
type VerificationStatus string

const (
	VerificationNone     VerificationStatus = ""
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Document is a locally selected image awaiting upload.
type Document struct {
	Type     DocumentType `json:"type"`
	Path     string       `json:"path"`
	Uploaded bool         `json:"uploaded"`
}
