package models

// Slot is a typed conversation variable declared in the domain.
type Slot struct {
	ID           int64  `db:"id" json:"-"`
	Bot          string `db:"bot" json:"-"`
	Name         string `db:"name" json:"name"`
	Type         string `db:"type" json:"type"`
	InitialValue string `db:"initial_value" json:"initial_value,omitempty"`
	User         string `db:"created_by" json:"-"`
}

// Entity is a named entity declared in the domain.
type Entity struct {
	ID   int64  `db:"id" json:"-"`
	Bot  string `db:"bot" json:"-"`
	Name string `db:"name" json:"name"`
	User string `db:"created_by" json:"-"`
}

// Form collects slots from the user.
type Form struct {
	ID            int64    `db:"id" json:"-"`
	Bot           string   `db:"bot" json:"-"`
	Name          string   `db:"name" json:"name"`
	RequiredSlots []string `db:"-" json:"required_slots"`
	User          string   `db:"created_by" json:"-"`
}

// Domain is the aggregate view of everything a bot declares. The import
// validator cross-checks flows against it and the import log reports its
// counts.
type Domain struct {
	Intents    []string
	Entities   []string
	Slots      []string
	Forms      []string
	Actions    []string
	Utterances []string
}

// Has reports whether name is declared anywhere in the domain.
func (d *Domain) Has(name string) bool {
	for _, group := range [][]string{d.Intents, d.Entities, d.Slots, d.Forms, d.Actions, d.Utterances} {
		for _, n := range group {
			if n == name {
				return true
			}
		}
	}
	return false
}

// HasUtterance reports whether name is a declared utterance.
func (d *Domain) HasUtterance(name string) bool {
	for _, n := range d.Utterances {
		if n == name {
			return true
		}
	}
	return false
}

// HasIntent reports whether name is a declared intent.
func (d *Domain) HasIntent(name string) bool {
	for _, n := range d.Intents {
		if n == name {
			return true
		}
	}
	return false
}

// HasAction reports whether name is a declared action or form.
func (d *Domain) HasAction(name string) bool {
	for _, n := range d.Actions {
		if n == name {
			return true
		}
	}
	for _, n := range d.Forms {
		if n == name {
			return true
		}
	}
	return false
}

// HasSlot reports whether name is a declared slot.
func (d *Domain) HasSlot(name string) bool {
	for _, n := range d.Slots {
		if n == name {
			return true
		}
	}
	return false
}
