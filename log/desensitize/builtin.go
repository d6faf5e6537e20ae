package desensitize

const mask = "******"

var (
	// BearerRule Authorization 头中的 bearer 凭据 (Bearer abc.def -> Bearer ******)
	BearerRule = MustNewContentRule(
		"bearer",
		`(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`,
		"${1}"+mask,
	)

	// EmailRule 邮箱脱敏规则 (user@example.com -> u***r@e***.com)
	EmailRule = MustNewContentRule(
		"email",
		`\b([A-Za-z0-9])[A-Za-z0-9._%+-]*([A-Za-z0-9])@([A-Za-z0-9])[A-Za-z0-9.-]*\.([A-Za-z]{2,})\b`,
		"$1***$2@$3***.$4",
	)

	TokenRule        = MustNewFieldRule("token", "token", `.+`, mask)
	RefreshTokenRule = MustNewFieldRule("refresh_token", "refreshToken", `.+`, mask)
	AccessTokenRule  = MustNewFieldRule("access_token", "accessToken", `.+`, mask)
	PasswordRule     = MustNewFieldRule("password", "password", `.+`, mask)
	OTPRule          = MustNewFieldRule("otp", "otp", `.+`, mask)
)

// Credentials 返回屏蔽凭据的钩子：bearer 头、token 类字段、密码与验证码
func Credentials() *Hook {
	h := NewHook()
	h.AddBuiltin(
		BearerRule,
		TokenRule,
		RefreshTokenRule,
		AccessTokenRule,
		PasswordRule,
		OTPRule,
	)
	return h
}
