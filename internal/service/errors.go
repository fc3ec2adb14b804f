package service

import "errors"

var (
	// ErrRoleNotAllowed is returned when a non-driver account signs in.
	ErrRoleNotAllowed = errors.New("only drivers can use this application")

	// ErrMissingToken is returned when the login response carries no access token.
	ErrMissingToken = errors.New("login response did not include an access token")

	// ErrNotAuthenticated is returned by operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("not signed in")

	// ErrNameRequired is returned when a profile or registration has no name.
	ErrNameRequired = errors.New("name is required")

	// ErrPhoneRequired is returned when a profile or registration has no phone.
	ErrPhoneRequired = errors.New("phone is required")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrPasswordTooShort is returned when a password has fewer than six characters.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	// ErrPasswordMismatch is returned when the confirmation differs from the password.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidLoadID is returned when load ID is empty.
	ErrInvalidLoadID = errors.New("invalid load id")

	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrJourneyAlreadyActive is returned when starting a journey while one is tracked.
	ErrJourneyAlreadyActive = errors.New("journey already active")

	// ErrNoActiveJourney is returned when stopping without an active journey.
	ErrNoActiveJourney = errors.New("no active journey")

	// ErrStopFailed is returned when the backend did not confirm a stop. Sampling continues.
	ErrStopFailed = errors.New("could not stop the journey, tracking continues")

	// ErrJourneyNotOpen is returned when a journey operation runs before Open.
	ErrJourneyNotOpen = errors.New("no load opened for tracking")

	// ErrLocationPermissionDenied is returned when foreground location access is refused.
	ErrLocationPermissionDenied = errors.New("location permission is required to track a journey")

	// ErrEmptyMessage is returned when sending a blank draft.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrConversationNotOpen is returned when using a conversation that was not opened.
	ErrConversationNotOpen = errors.New("conversation not open")

	// ErrUnsupportedLanguage is returned for unknown language codes.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrInvalidDocumentType is returned for unknown verification document types.
	ErrInvalidDocumentType = errors.New("invalid document type")

	// ErrDocumentPathRequired is returned when a document is added without an image.
	ErrDocumentPathRequired = errors.New("document image is required")

	// ErrDocumentsIncomplete is returned when submitting fewer than the required documents.
	ErrDocumentsIncomplete = errors.New("all verification documents are required")
)
