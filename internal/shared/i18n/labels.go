package i18n

// Page labels rendered by the HTML views.
const (
	KeyPageLoginTitle    = "page.login.title"
	KeyPageSignupTitle   = "page.signup.title"
	KeyPageTimelineTitle = "page.timeline.title"

	KeyLabelName            = "label.name"
	KeyLabelEmail           = "label.email"
	KeyLabelPassword        = "label.password"
	KeyLabelPasswordConfirm = "label.password_confirm"
	KeyLabelBody            = "label.body"
	KeyLabelImage           = "label.image"

	KeyButtonLogin  = "button.login"
	KeyButtonSignup = "button.signup"
	KeyButtonPost   = "button.post"
	KeyButtonLogout = "button.logout"

	KeyLinkSignup = "link.signup"
	KeyLinkLogin  = "link.login"

	KeyTimelineEmpty = "timeline.empty"

	KeyErrorPageNotFound = "error.page_not_found"
	KeyErrorTooLarge     = "error.too_large"
	KeyErrorBadRequest   = "error.bad_request"
)

func init() {
	for k, v := range map[string]string{
		KeyPageLoginTitle:       "ログイン",
		KeyPageSignupTitle:      "新規登録",
		KeyPageTimelineTitle:    "タイムライン",
		KeyLabelName:            "名前",
		KeyLabelEmail:           "メールアドレス",
		KeyLabelPassword:        "パスワード",
		KeyLabelPasswordConfirm: "パスワード（確認）",
		KeyLabelBody:            "いまどうしてる？",
		KeyLabelImage:           "画像",
		KeyButtonLogin:          "ログイン",
		KeyButtonSignup:         "登録する",
		KeyButtonPost:           "投稿する",
		KeyButtonLogout:         "ログアウト",
		KeyLinkSignup:           "新規登録はこちら",
		KeyLinkLogin:            "ログインはこちら",
		KeyTimelineEmpty:        "まだ投稿がありません。",
		KeyErrorPageNotFound:    "ページが見つかりません。",
		KeyErrorTooLarge:        "送信データが大きすぎます。",
		KeyErrorBadRequest:      "リクエストが不正です。",
	} {
		japanese[k] = v
	}

	for k, v := range map[string]string{
		KeyPageLoginTitle:       "Log in",
		KeyPageSignupTitle:      "Sign up",
		KeyPageTimelineTitle:    "Timeline",
		KeyLabelName:            "Name",
		KeyLabelEmail:           "Email address",
		KeyLabelPassword:        "Password",
		KeyLabelPasswordConfirm: "Confirm password",
		KeyLabelBody:            "What's happening?",
		KeyLabelImage:           "Image",
		KeyButtonLogin:          "Log in",
		KeyButtonSignup:         "Sign up",
		KeyButtonPost:           "Post",
		KeyButtonLogout:         "Log out",
		KeyLinkSignup:           "Create an account",
		KeyLinkLogin:            "Already have an account? Log in",
		KeyTimelineEmpty:        "No posts yet.",
		KeyErrorPageNotFound:    "Page not found.",
		KeyErrorTooLarge:        "The request is too large.",
		KeyErrorBadRequest:      "Bad request.",
	} {
		english[k] = v
	}
}
