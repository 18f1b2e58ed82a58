package activities

import (
	"time"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/models"
	"mergington-activities/pkg/registry"
)

// DefaultSeed is the built-in Mergington High School activity set.
func DefaultSeed() []Entry {
	return []Entry{
		{Name: "Chess Club", Activity: models.Activity{
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		}},
		{Name: "Programming Class", Activity: models.Activity{
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		}},
		{Name: "Gym Class", Activity: models.Activity{
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		}},
		{Name: "Basketball Team", Activity: models.Activity{
			Description:     "Team practices and inter-school basketball competitions",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 15,
			Participants:    []string{"liam@mergington.edu", "noah@mergington.edu"},
		}},
		{Name: "Swimming Club", Activity: models.Activity{
			Description:     "Swim training sessions and meets preparation",
			Schedule:        "Mondays and Wednesdays, 3:45 PM - 5:15 PM",
			MaxParticipants: 18,
			Participants:    []string{"ava@mergington.edu", "mia@mergington.edu"},
		}},
		{Name: "Drama Club", Activity: models.Activity{
			Description:     "Acting workshops and school play productions",
			Schedule:        "Fridays, 3:30 PM - 5:30 PM",
			MaxParticipants: 25,
			Participants:    []string{"isabella@mergington.edu", "amelia@mergington.edu"},
		}},
		{Name: "Photography Workshop", Activity: models.Activity{
			Description:     "Learn photography techniques and photo editing",
			Schedule:        "Wednesdays, 3:30 PM - 4:45 PM",
			MaxParticipants: 16,
			Participants:    []string{"charlotte@mergington.edu", "ella@mergington.edu"},
		}},
		{Name: "Science Olympiad", Activity: models.Activity{
			Description:     "Prepare for science competitions across multiple disciplines",
			Schedule:        "Mondays, 3:30 PM - 4:45 PM",
			MaxParticipants: 20,
			Participants:    []string{"ethan@mergington.edu", "logan@mergington.edu"},
		}},
		{Name: "Mathletes", Activity: models.Activity{
			Description:     "Problem-solving sessions and math competition preparation",
			Schedule:        "Thursdays, 3:30 PM - 4:45 PM",
			MaxParticipants: 22,
			Participants:    []string{"harper@mergington.edu", "evelyn@mergington.edu"},
		}},
	}
}

// FromFile converts a validated seed file into registry entries.
func FromFile(f *registry.File) []Entry {
	entries := make([]Entry, 0, len(f.Activities))
	for _, a := range f.Activities {
		entries = append(entries, Entry{Name: a.Name, Activity: models.Activity{
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    append([]string{}, a.Participants...),
		}})
	}
	return entries
}

// ToFile renders a snapshot in seed-file form.
func ToFile(s Snapshot, version string) *registry.File {
	f := &registry.File{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Activities:  make([]registry.Activity, 0, len(s.Order)),
	}
	for _, name := range s.Order {
		a := s.Activities[name]
		f.Activities = append(f.Activities, registry.Activity{
			Name:            name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    append([]string{}, a.Participants...),
		})
	}
	return f
}

// LoadSeed returns the entries in path, or DefaultSeed when path is empty.
func LoadSeed(path string) ([]Entry, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	f, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, apperrors.NewSeedInvalidError(err.Error())
	}
	return FromFile(f), nil
}
