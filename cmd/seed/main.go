package main

import (
	"flag"
	"log"
	"os"

	"invoicing-agent-be/internal/model"
	"invoicing-agent-be/internal/repository/specification"
	"invoicing-agent-be/pkg/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	workspaceID := flag.Uint("workspace", 1, "workspace to seed")
	flag.Parse()

	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ws := *workspaceID
	log.Printf("Seeding demo workspace %d...", ws)

	clients := []model.Client{
		{WorkspaceId: ws, Name: "Acme Corp", Email: "billing@acme.io", Phone: "555-0100", Address: "1 Main St, Springfield"},
		{WorkspaceId: ws, Name: "Globex Corporation", Email: "ap@globex.com", Phone: "555-0101", Address: "200 Industrial Way"},
		{WorkspaceId: ws, Name: "Initech", Email: "accounts@initech.co.uk", Phone: "555-0102", Address: "4120 Freidrich Ln"},
		{WorkspaceId: ws, Name: "Acme Logistics", Email: "finance@acme-logistics.com", Phone: "555-0103", Address: "9 Harbor Rd"},
	}
	for i := range clients {
		seedClient(db, &clients[i])
	}

	businesses := []model.Business{
		{
			WorkspaceId:          ws,
			Name:                 "Northwind Studio",
			Email:                "hello@northwind.studio",
			IsDefault:            true,
			DefaultTaxMode:       "BY_TOTAL",
			DefaultTaxName:       "VAT",
			DefaultTaxPercentage: 10,
			DefaultNotes:         "Thank you for your business.",
			DefaultTerms:         "Payment due within 30 days.",
		},
		{
			WorkspaceId:    ws,
			Name:           "Northwind Consulting",
			Email:          "consulting@northwind.studio",
			DefaultTaxMode: "NONE",
			DefaultTerms:   "Net 15",
		},
	}
	for i := range businesses {
		seedBusiness(db, &businesses[i])
	}

	log.Println("Seeding completed!")
}

func seedClient(db *gorm.DB, c *model.Client) {
	var existing model.Client
	if err := matching(db, c.WorkspaceId, "email", c.Email).First(&existing).Error; err == nil {
		log.Printf("Client '%s' already exists, skipping...", c.Name)
		return
	}
	if err := db.Create(c).Error; err != nil {
		log.Printf("Error creating client '%s': %v", c.Name, err)
		return
	}
	log.Printf("Created client: %s (id %d)", c.Name, c.Id)
}

func seedBusiness(db *gorm.DB, b *model.Business) {
	var existing model.Business
	if err := matching(db, b.WorkspaceId, "name", b.Name).First(&existing).Error; err == nil {
		log.Printf("Business '%s' already exists, skipping...", b.Name)
		return
	}
	if err := db.Create(b).Error; err != nil {
		log.Printf("Error creating business '%s': %v", b.Name, err)
		return
	}
	log.Printf("Created business: %s (id %d)", b.Name, b.Id)
}

func matching(db *gorm.DB, workspaceID uint, field string, value interface{}) *gorm.DB {
	scoped := specification.InWorkspace{WorkspaceID: workspaceID}.Apply(db)
	return specification.Filter(field, value).Apply(scoped)
}
