// Command seed loads a demo dataset into the configured store: entities and
// users straight through the repository, claims through the ledger so votes
// and evidence drive the status machine exactly as they would in production.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"worldgraph-backend/internal/config"
	"worldgraph-backend/internal/di"
	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository"
	"worldgraph-backend/internal/service/ledger"
	"worldgraph-backend/pkg/utils"
)

func main() {
	dataset := flag.String("dataset", "minimal", "dataset to load: minimal or ww1ww2")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Logger.Sync()

	s := seeder{
		repo:   container.Repository,
		ledger: container.Ledger,
		logger: container.Logger,
	}

	switch *dataset {
	case "minimal":
		err = s.seedMinimal(ctx)
	case "ww1ww2":
		err = s.seedWorldWars(ctx)
	default:
		log.Fatalf("Unknown dataset %q", *dataset)
	}
	if err != nil {
		container.Logger.Fatal("Seeding failed", zap.Error(err))
	}
	container.Logger.Info("Seeding complete", zap.String("dataset", *dataset))
}

type seeder struct {
	repo   repository.Repository
	ledger *ledger.Service
	logger *zap.Logger
}

func (s *seeder) addPerson(ctx context.Context, id, name, wikidataID string) error {
	return s.repo.SavePerson(ctx, &domain.Person{
		ID:         id,
		Name:       name,
		WikidataID: wikidataID,
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *seeder) addEvent(ctx context.Context, id, name, eventType, start, end, wikidataID string) error {
	startDate, err := utils.ParseDate(start)
	if err != nil {
		return err
	}
	e := &domain.Event{
		ID:         id,
		Name:       name,
		EventType:  eventType,
		StartDate:  startDate,
		WikidataID: wikidataID,
		CreatedAt:  time.Now().UTC(),
	}
	if end != "" {
		endDate, err := utils.ParseDate(end)
		if err != nil {
			return err
		}
		e.EndDate = &endDate
	}
	return s.repo.SaveEvent(ctx, e)
}

func (s *seeder) addUser(ctx context.Context, id, name string, role domain.Role) error {
	return s.repo.UpsertUser(ctx, &domain.User{
		ID:          id,
		DisplayName: name,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	})
}

// approvedClaim creates a claim, attaches one evidence link and casts enough
// moderator votes to cross the approval threshold.
func (s *seeder) approvedClaim(ctx context.Context, personID, eventID, relType, url, title string, voters []string) (string, error) {
	claim, err := s.ledger.CreateClaim(ctx, personID, eventID, relType, voters[0])
	if err != nil {
		return "", err
	}
	if _, err := s.ledger.AddEvidence(ctx, claim.ID, ledger.EvidenceDescriptor{
		SourceType: domain.SourceWikidata,
		Title:      title,
		URL:        url,
	}, voters[0]); err != nil {
		return "", err
	}
	for _, voter := range voters {
		if _, err := s.ledger.CastVote(ctx, voter, claim.ID, 1); err != nil {
			return "", err
		}
	}
	return claim.ID, nil
}

func (s *seeder) seedUsers(ctx context.Context) ([]string, error) {
	users := []struct {
		id   string
		name string
		role domain.Role
	}{
		{"user:alice", "Alice", domain.RoleMod},
		{"user:bob", "Bob", domain.RoleMod},
		{"user:carol", "Carol", domain.RoleTrusted},
		{"user:dave", "Dave", domain.RoleUser},
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if err := s.addUser(ctx, u.id, u.name, u.role); err != nil {
			return nil, err
		}
		ids = append(ids, u.id)
	}
	return ids, nil
}

func (s *seeder) seedMinimal(ctx context.Context) error {
	voters, err := s.seedUsers(ctx)
	if err != nil {
		return err
	}

	if err := s.addPerson(ctx, "person:ada", "Ada Lovelace", "Q7259"); err != nil {
		return err
	}
	if err := s.addPerson(ctx, "person:babbage", "Charles Babbage", "Q46633"); err != nil {
		return err
	}
	if err := s.addEvent(ctx, "event:analytical-engine", "Design of the Analytical Engine", "INVENTION", "1837-01-01", "", "Q1329564"); err != nil {
		return err
	}

	if _, err := s.approvedClaim(ctx, "person:ada", "event:analytical-engine", "CONTRIBUTED_TO",
		"https://www.wikidata.org/wiki/Q7259", "Ada Lovelace", voters); err != nil {
		return err
	}
	if _, err := s.approvedClaim(ctx, "person:babbage", "event:analytical-engine", "DESIGNED",
		"https://www.wikidata.org/wiki/Q46633", "Charles Babbage", voters); err != nil {
		return err
	}
	return nil
}

func (s *seeder) seedWorldWars(ctx context.Context) error {
	voters, err := s.seedUsers(ctx)
	if err != nil {
		return err
	}

	people := []struct{ id, name, wikidata string }{
		{"person:franz-ferdinand", "Archduke Franz Ferdinand", "Q151144"},
		{"person:gavrilo-princip", "Gavrilo Princip", "Q135904"},
		{"person:woodrow-wilson", "Woodrow Wilson", "Q34296"},
		{"person:winston-churchill", "Winston Churchill", "Q8016"},
		{"person:franklin-roosevelt", "Franklin D. Roosevelt", "Q8007"},
		{"person:joseph-stalin", "Joseph Stalin", "Q855"},
		{"person:dwight-eisenhower", "Dwight D. Eisenhower", "Q9916"},
	}
	for _, p := range people {
		if err := s.addPerson(ctx, p.id, p.name, p.wikidata); err != nil {
			return err
		}
	}

	events := []struct{ id, name, eventType, start, end, wikidata string }{
		{"event:sarajevo-assassination", "Assassination of Archduke Franz Ferdinand", "ASSASSINATION", "1914-06-28", "", "Q634277"},
		{"event:ww1", "World War I", "WAR", "1914-07-28", "1918-11-11", "Q361"},
		{"event:treaty-of-versailles", "Treaty of Versailles", "TREATY", "1919-06-28", "", "Q8736"},
		{"event:ww2", "World War II", "WAR", "1939-09-01", "1945-09-02", "Q362"},
		{"event:yalta-conference", "Yalta Conference", "CONFERENCE", "1945-02-04", "1945-02-11", "Q188623"},
		{"event:d-day", "Normandy Landings", "BATTLE", "1944-06-06", "", "Q16471"},
	}
	for _, e := range events {
		if err := s.addEvent(ctx, e.id, e.name, e.eventType, e.start, e.end, e.wikidata); err != nil {
			return err
		}
	}

	claims := []struct{ person, event, relType string }{
		{"person:franz-ferdinand", "event:sarajevo-assassination", "VICTIM_OF"},
		{"person:gavrilo-princip", "event:sarajevo-assassination", "PERPETRATOR_OF"},
		{"person:woodrow-wilson", "event:ww1", "LED_NATION_DURING"},
		{"person:woodrow-wilson", "event:treaty-of-versailles", "NEGOTIATED"},
		{"person:winston-churchill", "event:ww2", "LED_NATION_DURING"},
		{"person:winston-churchill", "event:yalta-conference", "PARTICIPATED_IN"},
		{"person:franklin-roosevelt", "event:ww2", "LED_NATION_DURING"},
		{"person:franklin-roosevelt", "event:yalta-conference", "PARTICIPATED_IN"},
		{"person:joseph-stalin", "event:ww2", "LED_NATION_DURING"},
		{"person:joseph-stalin", "event:yalta-conference", "PARTICIPATED_IN"},
		{"person:dwight-eisenhower", "event:ww2", "COMMANDED_FORCES_IN"},
		{"person:dwight-eisenhower", "event:d-day", "COMMANDED"},
	}
	for _, c := range claims {
		if _, err := s.approvedClaim(ctx, c.person, c.event, c.relType,
			"https://www.wikidata.org/wiki/"+c.person, c.person, voters); err != nil {
			return err
		}
	}
	return nil
}
