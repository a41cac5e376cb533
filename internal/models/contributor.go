package models

// Contributor is a row of the weekly leaderboard computed by the backend.
type Contributor struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	AuthorImage string `json:"authorImage,omitempty"`
	Count       int    `json:"count"`
	IsPremium   Flag   `json:"isPremium"`
}

// ContributorBoard is the body of GET /top-contributors-week.
type ContributorBoard struct {
	Contributors []Contributor `json:"contributors"`
}

// CheckoutSession is returned by POST /payment-checkout-session.
type CheckoutSession struct {
	URL string `json:"url"`
}
