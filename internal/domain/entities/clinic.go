package entities

// Clinic is one externally operated booking portal the tool scrapes.
// The clinic directory is loaded once at startup and never mutated;
// every scrape cycle receives the same immutable slice.
type Clinic struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Timezone string `json:"timezone"`
}
