package main

import (
	"log"
	"os"

	"ai-companion-be/internal/model"
	"ai-companion-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
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

	color.Cyan("Seeding sample companions...\n")

	companions := []model.Companion{
		{Name: "Neura the Brainy Explorer", Subject: "science", Topic: "Neural Network of the Brain", Voice: "female", Style: "casual", Duration: 45},
		{Name: "Countsy the Number Wizard", Subject: "maths", Topic: "Derivatives & Integrals", Voice: "male", Style: "formal", Duration: 30},
		{Name: "Verba the Vocabulary Builder", Subject: "language", Topic: "English Literature", Voice: "female", Style: "casual", Duration: 30},
		{Name: "Memo the Memory Keeper", Subject: "history", Topic: "World Wars: Causes & Consequences", Voice: "male", Style: "formal", Duration: 15},
		{Name: "Codey the Logic Hacker", Subject: "coding", Topic: "Intro to If-Else Statements", Voice: "female", Style: "casual", Duration: 30},
		{Name: "The Market Maestro", Subject: "economics", Topic: "The Basics of Supply & Demand", Voice: "male", Style: "formal", Duration: 10},
	}

	for _, c := range companions {
		var existing model.Companion
		if err := db.Where("name = ?", c.Name).First(&existing).Error; err == nil {
			color.Yellow("Companion '%s' already exists, skipping...", c.Name)
			continue
		}

		if err := db.Create(&c).Error; err != nil {
			color.Red("Error creating companion '%s': %v", c.Name, err)
		} else {
			color.Green("Created companion: %s (%s)", c.Name, c.Subject)
		}
	}

	color.Cyan("Companion seeding completed!")
}
