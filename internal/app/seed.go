package app

import (
	"context"
	"fmt"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/service"
)

// SeedResult counts what Seed created.
type SeedResult struct {
	Users    int
	Theories int
	Comments int
}

type seedTheory struct {
	title     string
	content   string
	status    domain.Status
	evidence  []string
	anonymous bool
	comments  []string
}

var seedAgents = []struct {
	username string
	secret   string
}{
	{"Mulder", "TRUSTNO1"},
	{"Scully", "queequeg0220"},
}

var seedTheories = []seedTheory{
	{
		title:    "Roswell was not a weather balloon",
		content:  "Recovered debris does not match any balloon material of 1947.",
		status:   domain.StatusUnverified,
		evidence: []string{"https://example.com/roswell-daily-record"},
		comments: []string{"The foil had memory properties.", "Project Mogul explains it."},
	},
	{
		title:   "Cigarette Smoking Man was in Dallas",
		content: "Witness statements place a smoker at the book depository in 1963.",
		status:  domain.StatusDebunked,
	},
	{
		title:     "Tunguska event was a probe",
		content:   "No crater was found, which points to an airburst of something engineered.",
		status:    domain.StatusVerified,
		anonymous: true,
		comments:  []string{"Comet fragment theory is simpler."},
	},
}

// Seed loads demo agents, theories and comments through the services.
// Agents that already exist are logged in instead, so Seed can run twice;
// posts are created each time.
func (a *App) Seed(ctx context.Context) (*SeedResult, error) {
	var res SeedResult
	authors := make([]int64, 0, len(seedAgents))

	for _, agent := range seedAgents {
		out, err := a.Users.RegisterOrLogin(ctx, service.RegisterOrLoginInput{Username: agent.username, Secret: agent.secret})
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", agent.username, err)
		}
		if out.Created {
			res.Users++
		}
		authors = append(authors, out.User.ID)
	}

	for i, st := range seedTheories {
		author := authors[i%len(authors)]
		status := st.status
		anonymous := st.anonymous

		theory, err := a.Theories.Create(ctx, service.CreateTheoryInput{
			AuthorID:     author,
			Title:        st.title,
			Content:      st.content,
			Status:       &status,
			EvidenceURLs: st.evidence,
			Anonymous:    &anonymous,
		})
		if err != nil {
			return nil, fmt.Errorf("seed theory %q: %w", st.title, err)
		}
		res.Theories++

		for j, content := range st.comments {
			if _, err := a.Comments.Create(ctx, service.CreateCommentInput{
				TheoryID: theory.ID,
				AuthorID: authors[(i+j+1)%len(authors)],
				Content:  content,
			}); err != nil {
				return nil, fmt.Errorf("seed comment on %d: %w", theory.ID, err)
			}
			res.Comments++
		}
	}

	a.logger.Info().
		Int("users", res.Users).
		Int("theories", res.Theories).
		Int("comments", res.Comments).
		Msg("seed completed")

	return &res, nil
}
