package gallery

import "errors"

var (
	ErrAdmissionDenied    = errors.New("gallery at capacity")
	ErrUploadFailed       = errors.New("blob upload failed")
	ErrRegistrationFailed = errors.New("asset registration failed")
	ErrRemovalFailed      = errors.New("asset removal failed")
	ErrReorderFailed      = errors.New("reorder rejected")
	ErrSetCoverFailed     = errors.New("set cover rejected")
	ErrResolutionFailed   = errors.New("cover resolution failed")

	ErrAssetNotFound    = errors.New("asset not found")
	ErrPendingNotFound  = errors.New("pending upload not found")
	ErrCancelNotAllowed = errors.New("upload can no longer be canceled")
)
