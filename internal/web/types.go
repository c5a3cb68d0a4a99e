package web

type BoardPlayer struct {
	ID       int
	Name     string
	Avatar   string
	IsOnline bool
	X        float64
	Y        float64
	Placed   bool
	LastGame string
	Dice     int
}

type BoardData struct {
	Title       string
	CurrentUser string
	Role        string
	Players     []BoardPlayer
	Connections int
}
