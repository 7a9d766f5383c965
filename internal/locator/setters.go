package locator

// Setters adapts events onto independent per-field update functions. Nil
// fields are skipped, and failed lookups call nothing so the owner keeps its
// previous value.
type Setters struct {
	Lat    func(float64)
	Lng    func(float64)
	City   func(string)
	Region func(string)
}

// Handle is usable as the onResolved callback of New.
func (s Setters) Handle(event Event) {
	if event.Err != nil {
		return
	}
	switch event.Kind {
	case EventCoordinate:
		if s.Lat != nil {
			s.Lat(event.Coordinate.Latitude)
		}
		if s.Lng != nil {
			s.Lng(event.Coordinate.Longitude)
		}
	case EventCity:
		if s.City != nil {
			s.City(event.City)
		}
	case EventRegion:
		if s.Region != nil {
			s.Region(event.Region)
		}
	}
}
