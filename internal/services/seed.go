package services

import (
	"context"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/models"
	"github.com/google/uuid"
)

var randIntN = mathrand.Intn

var sampleTemplates = map[string][]string{
	"Happy":    {"Today was an amazing day because of %s!", "I'm so happy about %s!", "Can't stop smiling because of %s", "Wonderful moment: %s"},
	"Sad":      {"Feeling down because of %s", "Missing %s today", "Hard times with %s", "Sometimes %s makes me sad"},
	"Excited":  {"Can't wait for %s!", "So thrilled about %s!", "Getting ready for %s!", "Amazing news: %s!"},
	"Anxious":  {"Worried about %s", "Not sure how to handle %s", "Feeling nervous about %s", "Overthinking %s"},
	"Grateful": {"So thankful for %s", "Blessed to have %s", "Appreciating %s today", "Grateful moment: %s"},
	"Confused": {"Can't figure out %s", "Trying to understand %s", "Not sure about %s", "Mixed feelings about %s"},
	"Hopeful":  {"Looking forward to %s", "Better days ahead thanks to %s", "Believing in %s", "Dreams of %s"},
	"Tired":    {"Long day of %s", "Need rest after %s", "Exhausted from %s", "Taking a break from %s"},
}

var sampleCompletions = map[string][]string{
	"Happy":    {"spending time with family", "the beautiful weather", "meeting old friends", "learning something new", "completing a project"},
	"Sad":      {"the rainy weather", "a missed opportunity", "an old memory", "saying goodbye", "past mistakes"},
	"Excited":  {"the upcoming vacation", "starting a new project", "weekend plans", "learning a new skill", "an upcoming event"},
	"Anxious":  {"upcoming deadlines", "important decisions", "new responsibilities", "unexpected changes", "time management"},
	"Grateful": {"supportive friends", "good health", "simple pleasures", "peaceful moments", "kind gestures"},
	"Confused": {"life choices", "mixed signals", "relationship dynamics", "career paths", "future plans"},
	"Hopeful":  {"new beginnings", "positive changes", "personal growth", "a better tomorrow", "new possibilities"},
	"Tired":    {"a busy workday", "an intense workout", "continuous meetings", "studying hard", "daily responsibilities"},
}

// SeedSamples writes perTag random public thoughts for every known tag that
// has sample text, backdated up to a week, and returns how many it wrote.
func (s *ThoughtService) SeedSamples(ctx context.Context, authorID uuid.UUID, tags []models.EmotionTag, perTag int) (int, error) {
	if perTag <= 0 {
		perTag = 10
	}

	created := 0
	now := s.now()
	for _, tag := range tags {
		templates, completions := sampleTemplates[tag.Name], sampleCompletions[tag.Name]
		if len(templates) == 0 || len(completions) == 0 {
			continue
		}
		for i := 0; i < perTag; i++ {
			content := fmt.Sprintf(templates[randIntN(len(templates))], completions[randIntN(len(completions))])
			age := time.Duration(randIntN(7*24*60)) * time.Minute

			thought := &models.Thought{
				AuthorID:     uuid.NullUUID{UUID: authorID, Valid: true},
				Content:      content,
				EmotionTagID: uuid.NullUUID{UUID: tag.ID, Valid: true},
				Sentiment:    SentimentFor(tag.Name),
				IsPublic:     true,
				CreatedAt:    now.Add(-age),
			}
			if err := insertThought(ctx, s.db, thought); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}
