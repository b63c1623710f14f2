package models

type Rank string

const (
	RankNovice Rank = "NOVICE"
	RankScout  Rank = "SCOUT"
	RankHunter Rank = "HUNTER"
	RankMaster Rank = "MASTER"
)

// rankThresholds is ordered highest first; the first match wins.
var rankThresholds = []struct {
	min  int
	rank Rank
}{
	{1000, RankMaster},
	{500, RankHunter},
	{100, RankScout},
	{0, RankNovice},
}

// RankFor derives the rank for a point total.
func RankFor(points int) Rank {
	for _, t := range rankThresholds {
		if points >= t.min {
			return t.rank
		}
	}
	return RankNovice
}

// Title is the display name used in announcements.
func (r Rank) Title() string {
	switch r {
	case RankScout:
		return "Rat Scout"
	case RankHunter:
		return "Rat Hunter"
	case RankMaster:
		return "Rat Master"
	default:
		return "Rat Spotter"
	}
}
