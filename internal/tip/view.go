package tip

// View is a render-ready snapshot of a Presenter
type View struct {
	// Mandatory fields
	CrimeType   string   `json:"crime_type"`
	Date        string   `json:"date"`
	City        string   `json:"city"`
	Location    []string `json:"location"`
	Description string   `json:"description"`

	// Optional sections, present only when visible
	Suspect *SuspectInfo `json:"suspect,omitempty"`
	Victim  *VictimInfo  `json:"victim,omitempty"`
	Vehicle *VehicleInfo `json:"vehicle,omitempty"`

	Media     []string `json:"media,omitempty"`
	Feedbacks []string `json:"feedbacks,omitempty"`

	// Feedback form state
	Draft   string `json:"draft"`
	Notice  string `json:"notice,omitempty"`
	Pending int    `json:"pending"`

	DecodeErrors []string `json:"decode_errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// ShowFeedbacks reports whether the feedback history block is rendered.
func (v View) ShowFeedbacks() bool { return len(v.Feedbacks) > 0 }

// ShowMedia reports whether the media block is rendered.
func (v View) ShowMedia() bool { return len(v.Media) > 0 }

// View returns the current render state.
func (p *Presenter) View() View {
	view := View{
		CrimeType:    p.record.CrimeType,
		Date:         p.date,
		City:         p.record.City(),
		Location:     append([]string(nil), p.record.Location...),
		Description:  p.record.CrimeDesc,
		Suspect:      cloneSuspect(p.suspect),
		Victim:       cloneVictim(p.victim),
		Vehicle:      cloneVehicle(p.vehicle),
		DecodeErrors: append([]string(nil), p.decodeErrors...),
		Warnings:     append([]string(nil), p.warnings...),
	}
	if p.mediaVisible {
		view.Media = MediaURLs(p.gateway, p.record.IPFSHash, p.record.FileNames)
	}

	p.mu.Lock()
	if len(p.feedbacks) > 0 {
		view.Feedbacks = make([]string, len(p.feedbacks))
		copy(view.Feedbacks, p.feedbacks)
	}
	view.Draft = p.draft
	view.Notice = p.notice
	view.Pending = p.pending
	p.mu.Unlock()

	return view
}

func cloneSuspect(in *SuspectInfo) *SuspectInfo {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func cloneVictim(in *VictimInfo) *VictimInfo {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func cloneVehicle(in *VehicleInfo) *VehicleInfo {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}
