package core

// Greeting identifies the time-of-day salutation and its icon.
type Greeting struct {
	Key  string // message catalog key
	Icon string
}

var (
	GreetingMorning   = Greeting{Key: "dashboard.goodMorning", Icon: "sunrise"}
	GreetingAfternoon = Greeting{Key: "dashboard.goodAfternoon", Icon: "sun-medium"}
	GreetingEvening   = Greeting{Key: "dashboard.goodEvening", Icon: "sun"}
	GreetingNight     = Greeting{Key: "dashboard.goodNight", Icon: "moon"}
)

// GreetingFor maps an hour (0-23) to its greeting:
// 5-11 morning, 12-16 afternoon, 17-20 evening, anything else night.
func GreetingFor(hour int) Greeting {
	switch {
	case hour >= 5 && hour < 12:
		return GreetingMorning
	case hour >= 12 && hour < 17:
		return GreetingAfternoon
	case hour >= 17 && hour < 21:
		return GreetingEvening
	default:
		return GreetingNight
	}
}
