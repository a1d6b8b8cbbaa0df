package nlu

type CommandHelp struct {
	Phrase      string `json:"phrase"`
	Description string `json:"description"`
}

type CommandSection struct {
	Title    string        `json:"title"`
	Commands []CommandHelp `json:"commands"`
}

// Reference lists the phrases the rule matcher understands, grouped the way the
// commands panel shows them.
func Reference() []CommandSection {
	return []CommandSection{
		{
			Title: "Global Commands",
			Commands: []CommandHelp{
				{"commands list", "Shows this list of commands."},
				{"close list / hide commands", "Hides this list of commands."},
				{"show contacts", "Opens the contact management view."},
				{"open camera / open media", "Opens the camera and media recording view."},
				{"show calendar / open calendar", "Opens the calendar view."},
				{"return to main", "Closes any open view and returns to the main screen."},
			},
		},
		{
			Title: "Contacts View",
			Commands: []CommandHelp{
				{"capture contact", "Opens the panel to add a new contact."},
				{"capture confirmation", "Opens the panel to add a new confirmation."},
			},
		},
		{
			Title: "While in Contact Capture mode",
			Commands: []CommandHelp{
				{"name [full name]", "Sets the contact's name. Ex: 'name Jane Doe'"},
				{"phone [phone number]", "Sets the phone number. Ex: 'phone 555 123 4567'"},
				{"email [email address]", "Sets the email. Ex: 'email jane@example.com'"},
				{"details [notes]", "Adds notes about the contact."},
				{"save contact", "Saves the new contact information."},
				{"cancel contact", "Cancels adding the new contact."},
			},
		},
		{
			Title: "While in Confirmation Capture mode",
			Commands: []CommandHelp{
				{"type [booking, order, etc.]", "Sets the confirmation type."},
				{"name [airline, hotel, etc.]", "Sets the associated name for the confirmation."},
				{"number [confirmation #]", "Sets the confirmation number. Ex: 'number one two three'"},
				{"save confirmation", "Saves the new confirmation."},
				{"cancel confirmation", "Cancels adding the new confirmation."},
			},
		},
		{
			Title: "Media View",
			Commands: []CommandHelp{
				{"take a picture [count] [timer N]", "Captures photos. Ex: 'take a picture 5 timer 3'"},
				{"photo timer N", "Takes one photo after N seconds."},
				{"record video [for X seconds/minutes]", "Records video. Specify an optional duration."},
				{"record sound [for X seconds/minutes]", "Records audio. Specify an optional duration."},
				{"stop recording", "Stops an active video recording."},
				{"stop audio recording", "Stops an active audio recording."},
				{"switch camera", "Switches between front and back cameras."},
			},
		},
	}
}
