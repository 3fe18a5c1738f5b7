package evaluation

// dimension is one measured aspect of a session.
type dimension int

const (
	dimTechnicalDepth dimension = iota
	dimClarity
	dimConfidence
	dimConsistency
	dimImprovement
	dimAnswerLength
	dimCodeExamples
)

// rung is one step of a threshold ladder. The first matching rung wins.
type rung struct {
	match func(v float64) bool
	text  string
}

func atLeast(x float64) func(float64) bool { return func(v float64) bool { return v >= x } }
func over(x float64) func(float64) bool { return func(v float64) bool { return v > x } }
func below(x float64) func(float64) bool { return func(v float64) bool { return v < x } }
func always(float64) bool { return true }

// ladder holds every threshold that applies to one dimension.
type ladder struct {
	dim          dimension
	strengths    []rung
	improvements []rung
	commentary   []rung
}

// ladders drives strengths, improvements and feedback commentary. Bullets
// are emitted in table order.
var ladders = []ladder{
	{
		dim: dimTechnicalDepth,
		strengths: []rung{
			{atLeast(8), "Excellent technical knowledge and deep understanding of concepts"},
			{atLeast(6.5), "Solid technical foundation with good conceptual understanding"},
		},
		improvements: []rung{
			{below(5), `Study core concepts more deeply - focus on understanding "why" and "how" things work`},
			{below(7), "Expand technical knowledge with real-world examples and edge cases"},
		},
		commentary: []rung{
			{atLeast(7), "Your technical knowledge is strong. "},
			{atLeast(5), "Your technical understanding is developing but needs more depth. "},
			{always, "Focus on building stronger technical foundations. "},
		},
	},
	{
		dim: dimClarity,
		strengths: []rung{
			{atLeast(8), "Outstanding communication skills - explains complex topics clearly"},
			{atLeast(6.5), "Good communication ability and structured explanations"},
		},
		improvements: []rung{
			{below(5), "Practice explaining technical concepts in simpler terms - use analogies and examples"},
			{below(7), `Structure your answers better - use frameworks like "Problem-Solution-Example"`},
		},
		commentary: []rung{
			{atLeast(7), "You communicate technical concepts clearly and effectively. "},
			{atLeast(5), "Your communication is adequate but could be more structured. "},
			{always, "Work on explaining concepts more clearly and coherently. "},
		},
	},
	{
		dim: dimConfidence,
		strengths: []rung{
			{atLeast(7.5), "Confident and assertive responses demonstrate strong self-assurance"},
		},
		improvements: []rung{
			{below(5), "Build confidence through more practice and hands-on experience"},
			{below(6.5), `Be more assertive in your answers - avoid hedging language like "maybe" or "I think"`},
		},
		commentary: []rung{
			{atLeast(7), "You demonstrated good confidence in your answers."},
			{atLeast(5), "Build more confidence through practice and experience."},
			{always, "Your responses showed uncertainty - practice will help build confidence."},
		},
	},
	{
		dim: dimConsistency,
		strengths: []rung{
			{atLeast(7), "Consistent performance throughout the interview"},
		},
		improvements: []rung{
			{below(5), "Work on maintaining consistent quality across all answers"},
		},
	},
	{
		dim: dimImprovement,
		strengths: []rung{
			{atLeast(7), "Shows strong learning ability - performance improved during interview"},
		},
		improvements: []rung{
			{below(4), "Stay focused throughout the interview - your performance declined toward the end"},
		},
	},
	{
		dim: dimAnswerLength,
		strengths: []rung{
			{over(300), "Provides detailed and thorough responses"},
		},
		improvements: []rung{
			{below(100), "Provide more detailed responses - elaborate on your answers with examples"},
		},
	},
	{
		dim: dimCodeExamples,
		strengths: []rung{
			{atLeast(2), "Uses code examples to illustrate concepts effectively"},
		},
	},
}

// banner opens the feedback paragraph, keyed on the overall score.
var banner = []rung{
	{atLeast(8), "Outstanding performance! You demonstrated strong technical skills and excellent communication. "},
	{atLeast(6.5), "Good performance overall. You showed solid understanding with room for growth. "},
	{atLeast(5), "Adequate performance with several areas needing improvement. "},
	{always, "Your performance indicates significant gaps in knowledge and preparation. "},
}

// Fallback bullets.
const (
	EmptyStrength       = "Completed the interview session"
	EmptyImprovement    = "Practice more technical interviews to build experience"
	DefaultStrength     = "Engaged with the interview questions"
	DefaultImprovement  = "Keep practicing to maintain your skills"
	EmptyFeedback       = "Interview session completed but no responses were recorded."
	feedbackIntroFormat = "You completed a %s-level %s technical interview with %d responses. "
)

func climb(rungs []rung, v float64) (string, bool) {
	for _, r := range rungs {
		if r.match(v) {
			return r.text, true
		}
	}
	return "", false
}
