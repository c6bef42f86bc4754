package domain

import "time"

// Feedback is one operator verdict on a delivered answer.
type Feedback struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Correct   bool      `json:"correct"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an operator known to the assistant.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// AccuracyCounters is the explicit counters object the caller threads
// through the response layer instead of process-wide globals.
type AccuracyCounters struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Accuracy returns the correct/total ratio in percent, 0 when empty.
func (c AccuracyCounters) Accuracy() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total) * 100
}

// DailyStat is one aggregated row of answer accuracy per calendar day.
type DailyStat struct {
	Date         string  `json:"date"`
	Total        int     `json:"total_questions"`
	Correct      int     `json:"correct_answers"`
	AccuracyRate float64 `json:"accuracy_rate"`
}
