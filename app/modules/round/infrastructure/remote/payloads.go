package roundremote

// HoleScoreUpdate is the single hole body. Both players' values travel together.
type HoleScoreUpdate struct {
	HoleNumber     int     `json:"holeNumber"`
	Strokes        int     `json:"strokes"`
	Score          float64 `json:"score"`
	PartnerStrokes int     `json:"partnerStrokes"`
	PartnerScore   float64 `json:"partnerScore"`
}

// SubmissionPayload is the official score submission body.
type SubmissionPayload struct {
	PlayerScores []PlayerScore `json:"playerScores"`
}

// PlayerScore is one participant's signed card.
type PlayerScore struct {
	GolfLinkNumber string          `json:"golfLinkNumber"`
	Signature      string          `json:"signature"`
	Holes          []SubmittedHole `json:"holes"`
}

type SubmittedHole struct {
	GrossScore   int  `json:"grossScore"`
	BallPickedUp bool `json:"ballPickedUp"`
	NotPlayed    bool `json:"notPlayed"`
}

// RoundSummary is one entry of a golfer's round history.
type RoundSummary struct {
	UUID            string  `json:"uuid"`
	RoundDate       string  `json:"roundDate"`
	ClubName        string  `json:"clubName"`
	CompetitionType string  `json:"competitionType"`
	TotalStrokes    int     `json:"totalStrokes"`
	TotalPoints     float64 `json:"totalPoints"`
	IsSubmitted     bool    `json:"isSubmitted"`
}

// envelope wraps every response. A non-null errorMessage is a failure even on 200.
type envelope[T any] struct {
	ErrorMessage *string `json:"errorMessage"`
	Data         T       `json:"data"`
}
