package handler

// Canned messages for every endpoint. A failure that is not a typed
// application error is answered with the operation's *Error message.
const (
	MsgValidationError = "Validation Error , Please check the request"

	MsgUserRegisterSuccess = "User registered successfully"
	MsgUserRegisterError   = "Oops! Something went wrong in user registration"
	MsgUserLoginSuccess    = "User logged in successfully"
	MsgUserLoginError      = "Oops! Something went wrong in user login"
	MsgLogoutSuccess       = "User logged out successfully"

	MsgUserDetailsSuccess     = "User details fetched successfully"
	MsgUserDetailsError       = "Oops! Something went wrong in fetching user details"
	MsgAccessTokenSuccess     = "Access token login success"
	MsgAccessTokenError       = "Oops! Something went wrong in access token login"
	MsgUserListSuccess        = "User list fetched successfully"
	MsgUserListError          = "Oops! Something went wrong in fetching user list"
	MsgUserPublicListSuccess  = "Public User list fetched successfully"
	MsgUserPublicListError    = "Oops! Something went wrong in fetching public user list"
	MsgUserUpdateSuccess      = "User details updated successfully"
	MsgUserUpdateError        = "Oops! Something went wrong in updating user details"
	MsgAssetUploadSuccess     = "Asset uploaded successfully"
	MsgAssetUploadError       = "Oops! Something went wrong in uploading asset"
	MsgFileNotFound           = "File not found."
	MsgQuickSaveAddSuccess    = "Quick save added successfully"
	MsgQuickSaveAddError      = "Oops! Something went wrong in adding quick save"
	MsgQuickSaveListSuccess   = "Quick saves fetched successfully"
	MsgQuickSaveListError     = "Oops! Something went wrong in fetching quick saves"
	MsgQuickSaveDeleteSuccess = "Quick save deleted successfully"
	MsgQuickSaveDeleteError   = "Oops! Something went wrong in deleting quick save"

	MsgHealthy   = "OK"
	MsgUnhealthy = "Database unreachable"
)
