package topology

const (
	ZoneCage = iota
	ZoneCenter
	ZoneFront
	ZoneHeadboard
	NumZones
)

const (
	BedChannels            = 8
	BedMaxPixelsPerChannel = 126
)

// BedZones returns the four bed zones with their brightness ceilings.
func BedZones() []Zone {
	return []Zone{
		NewZone("Cage", 128),
		NewZone("Center", 170),
		NewZone("Front", 170),
		NewZone("Headboard", 255),
	}
}

func postFront() []Segment {
	return Chain(
		Segment{Name: "Cage Left", Pixels: 12, Zone: ZoneCage},
		Segment{Name: "Cage Right", Pixels: 12, Zone: ZoneCage},
		Segment{Name: "Frame Right", Pixels: 21, Zone: ZoneCenter},
		Segment{Name: "Frame Left", Pixels: 21, Zone: ZoneCenter},
	)
}

func postRear() []Segment {
	return Chain(
		Segment{Name: "Cage Left", Pixels: 12, Zone: ZoneCage},
		Segment{Name: "Cage Right", Pixels: 12, Zone: ZoneCage},
		Segment{Name: "Back Right", Pixels: 21, Zone: ZoneFront},
		Segment{Name: "Back Left", Pixels: 21, Zone: ZoneFront},
		Segment{Name: "Frame Right", Pixels: 21, Zone: ZoneCenter},
		Segment{Name: "Frame Left", Pixels: 21, Zone: ZoneCenter},
	)
}

func headboard() []Segment {
	return Chain(
		Segment{Name: "Top Left", Pixels: 10, Zone: ZoneHeadboard},
		Segment{Name: "Cross Top Left", Pixels: 8, Zone: ZoneHeadboard},
		Segment{Name: "Top Middle", Pixels: 8, Zone: ZoneHeadboard},
		Segment{Name: "Cross Top Right", Pixels: 8, Zone: ZoneHeadboard},
		Segment{Name: "Top Right", Pixels: 10, Zone: ZoneHeadboard},
		Segment{Name: "Right", Pixels: 14, Zone: ZoneHeadboard},
		Segment{Name: "Bottom Right", Pixels: 10, Zone: ZoneHeadboard},
		Segment{Name: "Cross Bottom Right", Pixels: 8, Zone: ZoneHeadboard},
		Segment{Name: "Bottom Middle", Pixels: 8, Zone: ZoneHeadboard},
		Segment{Name: "Cross Bottom Left", Pixels: 8, Zone: ZoneHeadboard},
		Segment{Name: "Bottom Left", Pixels: 10, Zone: ZoneHeadboard},
		Segment{Name: "Left", Pixels: 14, Zone: ZoneHeadboard},
	)
}

// Bed returns the wiring of the bed: four corner posts and the headboard.
func Bed() *Layout {
	return &Layout{
		Channels:            BedChannels,
		MaxPixelsPerChannel: BedMaxPixelsPerChannel,
		Zones:               NumZones,
		Strings: []String{
			{Name: "Post Front Left", Channel: 6, Segments: postFront()},
			{Name: "Post Front Right", Channel: 4, Segments: postFront()},
			{Name: "Post Rear Left", Channel: 7, Segments: postRear()},
			{Name: "Post Rear Right", Channel: 3, Segments: postRear()},
			{Name: "Headboard", Channel: 5, Segments: headboard()},
		},
	}
}
