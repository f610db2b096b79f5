package domain

// Stats summarizes store contents for diagnostics.
type Stats struct {
	Users         int64 `json:"users"`
	Habits        int64 `json:"habits"`
	CheckinsToday int64 `json:"checkins_today"`
}
