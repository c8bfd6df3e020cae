package game

const (
	baseReward     = 1000
	bonusPerSecond = 10
)

// Score computes the points awarded for one answer. Incorrect answers and
// timeouts score zero; correct answers earn a flat base plus a linear bonus
// for every second left on the clock when the answer arrived.
func Score(correct bool, timeLeft int) int {
	if !correct {
		return 0
	}
	if timeLeft < 0 {
		timeLeft = 0
	}
	return baseReward + bonusPerSecond*timeLeft
}
