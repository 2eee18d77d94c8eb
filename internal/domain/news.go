package domain

import (
	"context"
	"fmt"
	"time"
)

// Article is one news item.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Placeholder bool      `json:"placeholder,omitempty"`
}

// NewsProvider fetches a page of local news for a location label.
type NewsProvider interface {
	News(ctx context.Context, location string, page PageRequest) (Page[Article], error)
}

var placeholderTopics = []struct {
	title, description string
}{
	{"Community meeting scheduled", "Residents are invited to discuss upcoming neighborhood projects."},
	{"Local parks announce summer programs", "Free outdoor activities for families start next month."},
	{"Road maintenance planned downtown", "Expect lane closures during overnight repairs."},
	{"Farmers market returns this weekend", "Local vendors bring fresh produce and crafts."},
	{"Library extends evening hours", "Branches will stay open later on weekdays."},
}

// PlaceholderNews fabricates a page of generic articles for location. It is
// served when the news provider fails so the feed is never blank.
func PlaceholderNews(location string, page PageRequest) Page[Article] {
	now := clock.Now()
	all := make([]Article, len(placeholderTopics))
	for i, topic := range placeholderTopics {
		all[i] = Article{
			ID:          fmt.Sprintf("placeholder-%d", i+1),
			Title:       fmt.Sprintf("%s in %s", topic.title, location),
			Description: topic.description,
			Source:      "UrbanPulse",
			PublishedAt: now.Add(-time.Duration(i+1) * time.Hour),
			Placeholder: true,
		}
	}
	return Paginate(all, page.Page, page.Limit)
}
