package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"invoicing-agent-be/internal/config"
	"invoicing-agent-be/internal/dto"
	"invoicing-agent-be/internal/pkg/logger"
	"invoicing-agent-be/internal/repository/memory"
	"invoicing-agent-be/internal/repository/unitofwork"
	"invoicing-agent-be/internal/service"
	"invoicing-agent-be/pkg/agent/tools"
	"invoicing-agent-be/pkg/database"

	"github.com/fatih/color"
)

// Runs the scripted happy path against the configured database, the way the
// voice front end would drive it, and prints the transcript.
func main() {
	workspaceID := flag.Uint("workspace", 1, "workspace to bill from")
	query := flag.String("customer", "acme", "customer search text")
	flag.Parse()

	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	factory := unitofwork.NewRepositoryFactory(db)
	quiet := logger.NewNopLogger()
	registry := tools.NewRegistry(tools.NewToolkit(factory, quiet), quiet)
	svc := service.NewAgentService(memory.NewSessionRepository(time.Hour), registry, nil, factory, quiet)

	ctx := context.Background()
	session, err := svc.StartSession(ctx, *workspaceID)
	if err != nil {
		color.Red("Failed to start session: %v", err)
		os.Exit(1)
	}
	color.Cyan("=== Invoice agent simulation (workspace %d, session %s) ===", *workspaceID, session.Id)

	call := func(name string, args interface{}) *dto.InvokeToolResponse {
		raw, _ := json.Marshal(args)
		color.Yellow("\n> %s %s", name, raw)
		res, err := svc.InvokeTool(ctx, session.Id, name, raw)
		if err != nil {
			color.Red("  request failed: %v", err)
			os.Exit(1)
		}
		if !res.Success {
			color.Red("  %s: %s", res.Error.Kind, res.Error.Message)
			return res
		}
		out, _ := json.MarshalIndent(res.Result, "  ", "  ")
		color.Green("  %s", out)
		return res
	}

	found := call("lookupCustomer", map[string]interface{}{"query": *query})
	lookup, ok := found.Result.(*tools.LookupCustomerResult)
	if !ok || !lookup.Found {
		color.Red("\nNo customer matches %q; run cmd/seed first.", *query)
		os.Exit(1)
	}
	call("selectCustomer", map[string]interface{}{"customerId": lookup.Customers[0].ID})

	listed := call("listBusinesses", map[string]interface{}{})
	businesses, ok := listed.Result.(*tools.ListBusinessesResult)
	if !ok || len(businesses.Businesses) == 0 {
		color.Red("\nWorkspace has no business; run cmd/seed first.")
		os.Exit(1)
	}
	call("selectBusiness", map[string]interface{}{"businessId": businesses.Businesses[0].ID})

	call("addInvoiceItem", map[string]interface{}{"description": "Logo design", "quantity": 2, "unitPrice": 500})
	call("addInvoiceItem", map[string]interface{}{"description": "Consulting", "quantity": 3, "unitPrice": 120, "quantityUnit": "HOURS"})
	call("addInvoiceItem", map[string]interface{}{"description": "Logo design", "quantity": 2, "unitPrice": 500})
	call("getCurrentInvoice", map[string]interface{}{})

	due := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	call("createInvoice", map[string]interface{}{"dueDate": due})
	call("createInvoice", map[string]interface{}{"dueDate": due})
	call("countInvoices", map[string]interface{}{})

	_ = svc.EndSession(ctx, session.Id)
	fmt.Println()
	color.Cyan("=== Simulation finished ===")
}
