package i18n

// Message keys shared by handlers and use cases.
const (
	KeyCSRFInvalid = "csrf.invalid"
	KeyRateLimited = "request.rate_limited"

	KeyLoginRequired      = "login.required"
	KeyLoginEmailEmpty    = "login.email_required"
	KeyLoginPasswordEmpty = "login.password_required"
	KeyLoggedOut          = "login.logged_out"

	KeySignupNameRequired     = "signup.name_required"
	KeySignupNameTooLong      = "signup.name_too_long"
	KeySignupEmailRequired    = "signup.email_required"
	KeySignupEmailInvalid     = "signup.email_invalid"
	KeySignupEmailTaken       = "signup.email_taken"
	KeySignupPasswordRequired = "signup.password_required"
	KeySignupPasswordShort    = "signup.password_too_short"
	KeySignupPasswordWeak     = "signup.password_weak"
	KeySignupPasswordTooLong  = "signup.password_too_long"
	KeySignupPasswordMismatch = "signup.password_mismatch"
	KeySignupSuccess          = "signup.success"

	KeyPostBodyRequired  = "post.body_required"
	KeyPostBodyTooLong   = "post.body_too_long"
	KeyPostImageInvalid  = "post.image_invalid"
	KeyPostImageTooLarge = "post.image_too_large"
	KeyPostImageType     = "post.image_type"
	KeyPostSuccess       = "post.success"

	KeyTimelineLoadFailed = "timeline.load_failed"
)

var japanese = map[string]string{
	"error.infrastructure": "システムエラーが発生しました。しばらくしてから再度お試しください。",
	"error.validation":     "入力内容に誤りがあります。",
	"error.authentication": "メールアドレスまたはパスワードが正しくありません。",
	"error.authorization":  "不正なリクエストです。",
	"error.not_found":      "ユーザーが見つかりません。再度ログインしてください。",
	"error.conflict":       "このメールアドレスは既に登録されています。",
	"error.internal":       "システムエラーが発生しました。しばらくしてから再度お試しください。",

	KeyCSRFInvalid: "不正なリクエストです。",
	KeyRateLimited: "リクエストが多すぎます。しばらくしてから再度お試しください。",

	KeyLoginRequired:      "ログインしてください。",
	KeyLoginEmailEmpty:    "メールアドレスを入力してください。",
	KeyLoginPasswordEmpty: "パスワードを入力してください。",
	KeyLoggedOut:          "ログアウトしました。",

	KeySignupNameRequired:     "名前を入力してください。",
	KeySignupNameTooLong:      "名前は100文字以内で入力してください。",
	KeySignupEmailRequired:    "メールアドレスを入力してください。",
	KeySignupEmailInvalid:     "有効なメールアドレスを入力してください。",
	KeySignupEmailTaken:       "このメールアドレスは既に登録されています。",
	KeySignupPasswordRequired: "パスワードを入力してください。",
	KeySignupPasswordShort:    "パスワードは8文字以上で入力してください。",
	KeySignupPasswordWeak:     "パスワードは英字と数字を組み合わせてください。",
	KeySignupPasswordTooLong:  "パスワードは72バイト以内で入力してください。",
	KeySignupPasswordMismatch: "パスワードが一致しません。",
	KeySignupSuccess:          "ユーザー登録が完了しました。ログインしてください。",

	KeyPostBodyRequired:  "投稿内容を入力してください。",
	KeyPostBodyTooLong:   "投稿内容は1000文字以内で入力してください。",
	KeyPostImageInvalid:  "画像データが不正です。",
	KeyPostImageTooLarge: "画像サイズが大きすぎます。",
	KeyPostImageType:     "対応していない画像形式です。",
	KeyPostSuccess:       "投稿しました。",

	KeyTimelineLoadFailed: "タイムラインの取得に失敗しました。",
}

var english = map[string]string{
	"error.infrastructure": "A system error occurred. Please try again later.",
	"error.validation":     "Please check your input.",
	"error.authentication": "Incorrect email address or password.",
	"error.authorization":  "Invalid request.",
	"error.not_found":      "User not found. Please log in again.",
	"error.conflict":       "This email address is already registered.",
	"error.internal":       "A system error occurred. Please try again later.",

	KeyCSRFInvalid: "Invalid request.",
	KeyRateLimited: "Too many requests. Please try again later.",

	KeyLoginRequired:      "Please log in.",
	KeyLoginEmailEmpty:    "Please enter your email address.",
	KeyLoginPasswordEmpty: "Please enter your password.",
	KeyLoggedOut:          "You have been logged out.",

	KeySignupNameRequired:     "Please enter your name.",
	KeySignupNameTooLong:      "Name must be 100 characters or fewer.",
	KeySignupEmailRequired:    "Please enter your email address.",
	KeySignupEmailInvalid:     "Please enter a valid email address.",
	KeySignupEmailTaken:       "This email address is already registered.",
	KeySignupPasswordRequired: "Please enter a password.",
	KeySignupPasswordShort:    "Password must be at least 8 characters.",
	KeySignupPasswordWeak:     "Password must contain both letters and digits.",
	KeySignupPasswordTooLong:  "Password must be 72 bytes or fewer.",
	KeySignupPasswordMismatch: "Passwords do not match.",
	KeySignupSuccess:          "Registration complete. Please log in.",

	KeyPostBodyRequired:  "Please enter some text.",
	KeyPostBodyTooLong:   "Posts must be 1000 characters or fewer.",
	KeyPostImageInvalid:  "The image data is invalid.",
	KeyPostImageTooLarge: "The image is too large.",
	KeyPostImageType:     "Unsupported image format.",
	KeyPostSuccess:       "Posted.",

	KeyTimelineLoadFailed: "Failed to load the timeline.",
}
