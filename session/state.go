package session

import "github.com/kochabx/blaze/service/auth"

// State 会话状态
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot 某一时刻的会话状态，User 为只读副本
type Snapshot struct {
	State           State
	User            *auth.User
	IsAuthenticated bool
	IsLoading       bool
}

// Screen 登录后应前往的页面
type Screen int

const (
	ScreenHome Screen = iota
	ScreenOnboarding
	ScreenOTP
)

func (s Screen) String() string {
	switch s {
	case ScreenHome:
		return "home"
	case ScreenOnboarding:
		return "onboarding"
	case ScreenOTP:
		return "otp"
	default:
		return "unknown"
	}
}

// Intent 登录结果对应的导航意图，Step 仅在 ScreenOnboarding 时有意义
type Intent struct {
	Screen Screen
	Step   int
}

// intentFor 未完成入驻的司机进入对应步骤，其余进入首页
func intentFor(u *auth.User) Intent {
	if u.NeedsOnboarding() {
		return Intent{Screen: ScreenOnboarding, Step: u.NextOnboardingStep()}
	}
	return Intent{Screen: ScreenHome}
}
