package response

import "github.com/yourname/moodlog/internal"

// Localized messages shown to API clients.
const (
	MsgCredentialsRequired = "ユーザー名とパスワードは必須です"
	MsgUsernameTaken       = "ユーザー名は既に使用されています"
	MsgInvalidCredentials  = "ユーザー名またはパスワードが正しくありません"
	MsgLoginFailed         = "ログインに失敗しました"
	MsgInvalidAction       = "無効なアクション"
	MsgAuthRequired        = "認証が必要です"
	MsgForbidden           = "この操作を行うための権限がありません"
	MsgServerError         = "サーバーエラーが発生しました"
	MsgUserIDRequired      = "ユーザーIDが必要です"
	MsgSaveFailed          = "データの保存に失敗しました"
	MsgEntryNotFound       = "更新対象のエントリーが見つかりませんでした"
	MsgCSVRequired         = "CSVデータが必要です"
	MsgEntryIDRequired     = "エントリーIDが必要です"
	MsgInvalidEntry        = "入力内容が正しくありません"
	MsgInvalidQuery        = "クエリパラメータが正しくありません"
)

// APIResponse is the {success, ...} envelope used by /auth, /users and the
// /health write paths.
type APIResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message,omitempty"`
	UserID        string                `json:"userId,omitempty"`
	Username      string                `json:"username,omitempty"`
	IsAdmin       *bool                 `json:"isAdmin,omitempty"`
	Entry         *internal.HealthEntry `json:"entry,omitempty"`
	ImportedCount *int                  `json:"importedCount,omitempty"`
}

// ErrorBody is the {error} shape used by /health.
type ErrorBody struct {
	Error string `json:"error"`
}

func Failure(msg string) APIResponse {
	return APIResponse{Success: false, Message: msg}
}

func Error(msg string) ErrorBody {
	return ErrorBody{Error: msg}
}

func Registered(userID, username string) APIResponse {
	return APIResponse{Success: true, UserID: userID, Username: username}
}

func LoggedIn(userID, username string, isAdmin bool) APIResponse {
	return APIResponse{Success: true, UserID: userID, Username: username, IsAdmin: &isAdmin}
}

func EntrySaved(e *internal.HealthEntry) APIResponse {
	return APIResponse{Success: true, Entry: e}
}

func Imported(msg string, n int) APIResponse {
	return APIResponse{Success: true, Message: msg, ImportedCount: &n}
}
