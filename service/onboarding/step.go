package onboarding

// Step 入驻步骤，按顺序完成
type Step int

const (
	StepPersonal Step = iota + 1
	StepDriver
	StepVehicle
)

// TotalSteps 步骤总数
const TotalSteps = 3

func (s Step) Valid() bool {
	return s >= StepPersonal && s <= StepVehicle
}

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "personal-info"
	case StepDriver:
		return "driver-info"
	case StepVehicle:
		return "vehicle-info"
	default:
		return "unknown"
	}
}

// ResolveStep 根据进度给出应进入的步骤；已完成时 done 为 true。
// 未知的 currentStep 回到第一步。
func ResolveStep(st *Status) (step Step, done bool) {
	if st == nil {
		return StepPersonal, false
	}
	if st.IsComplete {
		return 0, true
	}
	step = Step(st.CurrentStep)
	if !step.Valid() {
		return StepPersonal, false
	}
	return step, false
}

// Guard 检查能否进入 requested。不允许跳到当前进度之后，
// 此时返回进度所在的步骤和 false；已完成时总是返回 0 和 false。
func Guard(st *Status, requested Step) (Step, bool) {
	target, done := ResolveStep(st)
	if done {
		return 0, false
	}
	if !requested.Valid() || requested > target {
		return target, false
	}
	return requested, true
}
