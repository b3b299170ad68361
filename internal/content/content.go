// Package content produces the comment and direct-message text the engine
// posts. Pure text selection and substitution; no side effects. The corpus
// is grouped by category so a caption about food gets a food comment, and
// DM templates are grouped by subject with {username}/{subject} slots.
package content

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Category classifies a post for comment selection.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryNature      Category = "nature"
	CategoryFood        Category = "food"
	CategoryPhotography Category = "photography"
	CategoryArt         Category = "art"
	CategoryFashion     Category = "fashion"
	CategoryPersonal    Category = "personal"
)

// Subject classifies a direct message opener.
type Subject string

const (
	SubjectIntroduction  Subject = "introduction"
	SubjectCollaboration Subject = "collaboration"
	SubjectQuestion      Subject = "question"
	SubjectCompliment    Subject = "compliment"
	SubjectSuggestion    Subject = "suggestion"
)

// Generator selects and fills text templates.
type Generator struct {
	mu   sync.Mutex
	rand *rand.Rand

	// questionProbability is the chance a comment gets a follow-up question
	// appended.
	questionProbability float64
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRand injects a deterministic random source for tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rand = r }
}

// New creates a Generator seeded from the current time.
func New(opts ...Option) *Generator {
	g := &Generator{
		rand:                rand.New(rand.NewSource(time.Now().UnixNano())),
		questionProbability: 0.3,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateComment returns a comment for the given category, falling back to
// the general pool for unknown categories. With some probability a question
// is appended to invite a reply, unless the comment already asks one.
func (g *Generator) GenerateComment(category Category) string {
	pool, ok := comments[category]
	if !ok {
		pool = comments[CategoryGeneral]
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	text := pool[g.rand.Intn(len(pool))]
	if g.rand.Float64() < g.questionProbability && !strings.Contains(text, "?") {
		text += " " + questions[g.rand.Intn(len(questions))]
	}
	return text
}

// GenerateMessage returns a DM for the given subject with {username} and
// {subject} slots filled. An empty topic picks a generic one.
func (g *Generator) GenerateMessage(subject Subject, username, topic string) string {
	pool, ok := messages[subject]
	if !ok {
		pool = messages[SubjectIntroduction]
	}

	g.mu.Lock()
	if topic == "" {
		topic = defaultTopics[g.rand.Intn(len(defaultTopics))]
	}
	text := pool[g.rand.Intn(len(pool))]
	g.mu.Unlock()

	text = strings.ReplaceAll(text, "{username}", username)
	text = strings.ReplaceAll(text, "{subject}", topic)
	return text
}

// CategorizeCaption guesses a post category from caption keywords.
func CategorizeCaption(caption string) Category {
	c := strings.ToLower(caption)
	switch {
	case containsAny(c, "nature", "forest", "ocean", "mountain", "hike", "sunset"):
		return CategoryNature
	case containsAny(c, "food", "recipe", "restaurant", "cooking", "delicious"):
		return CategoryFood
	case containsAny(c, "photography", "photo", "camera", "shot", "lens"):
		return CategoryPhotography
	case containsAny(c, "art", "painting", "drawing", "illustration", "design"):
		return CategoryArt
	case containsAny(c, "fashion", "outfit", "style", "wardrobe", "ootd"):
		return CategoryFashion
	}
	return CategoryGeneral
}

// SubjectForBio guesses a DM subject and topic from a profile biography.
// Business-leaning bios get the collaboration opener.
func SubjectForBio(bio string) (Subject, string) {
	b := strings.ToLower(bio)
	if !containsAny(b, "collab", "business", "partnership", "sponsor", "inquiries") {
		return SubjectIntroduction, ""
	}
	switch {
	case strings.Contains(b, "photo"):
		return SubjectCollaboration, "photography"
	case strings.Contains(b, "design"):
		return SubjectCollaboration, "graphic design"
	case strings.Contains(b, "music"):
		return SubjectCollaboration, "music"
	case containsAny(b, "fitness", "sport"):
		return SubjectCollaboration, "fitness"
	case containsAny(b, "food", "cook"):
		return SubjectCollaboration, "cooking"
	}
	return SubjectCollaboration, ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
