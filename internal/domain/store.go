package domain

// Store is one branch of a supermarket chain from the stores feed.
type Store struct {
	ID      string
	Name    string
	City    string
	Address string
}
