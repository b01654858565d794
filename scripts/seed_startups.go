package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

type seedStartup struct {
	Name        string
	Slug        string
	Description string
	Industry    string
	FundingAsk  int64
	HasRevenue  bool
	LegalEntity string
	Team        []string
	CohortTags  []string
}

var startups = []seedStartup{
	{
		Name:        "Loopwell",
		Slug:        "loopwell",
		Description: "Closed-loop water recycling units for mid-size breweries",
		Industry:    "CleanTech",
		FundingAsk:  750000,
		HasRevenue:  true,
		LegalEntity: "Loopwell GmbH",
		Team:        []string{"Mara Voss", "Deniz Acar"},
		CohortTags:  []string{"sustainability", "hardware"},
	},
	{
		Name:        "Parcelbee",
		Slug:        "parcelbee",
		Description: "Crowdsourced same-day delivery for local retailers",
		Industry:    "Logistics",
		FundingAsk:  500000,
		HasRevenue:  false,
		LegalEntity: "Parcelbee UG",
		Team:        []string{"Jonas Brehm"},
		CohortTags:  []string{"marketplace", "b2b"},
	},
	{
		Name:        "Kardiolog",
		Slug:        "kardiolog",
		Description: "Remote cardiac monitoring with clinician-reviewed alerts",
		Industry:    "HealthTech",
		FundingAsk:  1200000,
		HasRevenue:  true,
		LegalEntity: "Kardiolog AG",
		Team:        []string{"Dr. Ines Halabi", "Tomasz Nowak", "Priya Raman"},
		CohortTags:  []string{"medtech", "saas"},
	},
	{
		Name:        "Fieldnote",
		Slug:        "fieldnote",
		Description: "Offline-first data collection for agronomy field trials",
		Industry:    "AgTech",
		FundingAsk:  400000,
		HasRevenue:  false,
		LegalEntity: "Fieldnote ApS",
		Team:        []string{"Sofie Lund", "Marcus Reyes"},
		CohortTags:  []string{"saas", "mobile"},
	},
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to database successfully")

	inserted := 0
	for _, s := range startups {
		result, err := db.Exec(`
			INSERT INTO startups (name, slug, description, industry, funding_ask, has_revenue, legal_entity, team, cohort_tags, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, NOW(), NOW())
			ON CONFLICT (slug) DO NOTHING`,
			s.Name, s.Slug, s.Description, s.Industry, s.FundingAsk, s.HasRevenue, s.LegalEntity,
			pq.Array(s.Team), pq.Array(s.CohortTags),
		)
		if err != nil {
			log.Fatalf("Failed to insert startup %s: %v", s.Slug, err)
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			inserted++
			log.Printf("Seeded startup: %s", s.Name)
		} else {
			log.Printf("Startup already exists, skipping: %s", s.Name)
		}
	}

	log.Printf("Seeding complete: %d new startups", inserted)
}
