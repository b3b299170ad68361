package content

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCommentFromCategoryPool(t *testing.T) {
	g := New(WithRand(rand.New(rand.NewSource(1))))

	for i := 0; i < 20; i++ {
		text := g.GenerateComment(CategoryFood)
		require.NotEmpty(t, text)

		found := false
		for _, c := range comments[CategoryFood] {
			if strings.HasPrefix(text, c) {
				found = true
				break
			}
		}
		require.True(t, found, "comment %q not drawn from the food pool", text)
	}
}

func TestGenerateCommentUnknownCategoryFallsBack(t *testing.T) {
	g := New(WithRand(rand.New(rand.NewSource(2))))

	text := g.GenerateComment(Category("astrology"))
	found := false
	for _, c := range comments[CategoryGeneral] {
		if strings.HasPrefix(text, c) {
			found = true
			break
		}
	}
	require.True(t, found, "expected fallback to general pool, got %q", text)
}

func TestGenerateCommentNeverDoubleQuestion(t *testing.T) {
	g := New(WithRand(rand.New(rand.NewSource(3))))

	for i := 0; i < 200; i++ {
		text := g.GenerateComment(CategoryPhotography)
		require.LessOrEqual(t, strings.Count(text, "?"), 1,
			"comment %q should not stack questions", text)
	}
}

func TestGenerateMessageSubstitution(t *testing.T) {
	g := New(WithRand(rand.New(rand.NewSource(4))))

	text := g.GenerateMessage(SubjectCollaboration, "jane_doe", "street photography")
	require.Contains(t, text, "jane_doe")
	require.NotContains(t, text, "{username}")
	require.NotContains(t, text, "{subject}")
}

func TestGenerateMessageEmptyTopicPicksDefault(t *testing.T) {
	g := New(WithRand(rand.New(rand.NewSource(5))))

	for i := 0; i < 20; i++ {
		text := g.GenerateMessage(SubjectSuggestion, "sam", "")
		require.NotContains(t, text, "{subject}")
	}
}

func TestCategorizeCaption(t *testing.T) {
	cases := []struct {
		caption string
		want    Category
	}{
		{"Sunset over the mountain ridge", CategoryNature},
		{"New recipe: homemade pasta", CategoryFood},
		{"Shot on my new camera, 50mm lens", CategoryPhotography},
		{"Finished this painting last night", CategoryArt},
		{"Today's outfit, what do you think", CategoryFashion},
		{"Just a regular Tuesday", CategoryGeneral},
		{"", CategoryGeneral},
	}

	for _, tc := range cases {
		t.Run(tc.caption, func(t *testing.T) {
			require.Equal(t, tc.want, CategorizeCaption(tc.caption))
		})
	}
}

func TestSubjectForBio(t *testing.T) {
	subject, topic := SubjectForBio("Photographer | open for collabs")
	require.Equal(t, SubjectCollaboration, subject)
	require.Equal(t, "photography", topic)

	subject, topic = SubjectForBio("just here for the memes")
	require.Equal(t, SubjectIntroduction, subject)
	require.Empty(t, topic)

	subject, topic = SubjectForBio("Business inquiries via DM")
	require.Equal(t, SubjectCollaboration, subject)
	require.Empty(t, topic)
}
