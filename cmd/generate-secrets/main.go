package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/smarttransit/seat-booking-backend/internal/utils"
	"github.com/smarttransit/seat-booking-backend/pkg/jwt"
)

func main() {
	email := flag.String("dev-token-email", "", "also print a signed access token for this email")
	roles := flag.String("dev-token-roles", jwt.RolePassenger, "comma separated roles for the dev token")
	issuer := flag.String("issuer", "smarttransit-booking", "JWT issuer for the dev token")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("Secret Generator for SmartTransit Booking")
	fmt.Println("===========================================")
	fmt.Println()

	jwtSecret, paymentSecret, err := utils.GenerateServiceSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", jwtSecret)
	fmt.Printf("RAZORPAY_KEY_SECRET=%s   # dev gateway only; use the dashboard secret in razorpay mode\n", paymentSecret)
	fmt.Println()

	if *email != "" {
		token, err := jwt.NewService(jwtSecret, *issuer, 24*time.Hour).GenerateAccessToken(jwt.Identity{
			Email: *email,
			Roles: strings.Split(*roles, ","),
		})
		if err != nil {
			log.Fatalf("Failed to sign dev token: %v", err)
		}
		fmt.Println("Dev access token (24h, signed with the JWT_SECRET above):")
		fmt.Println(token)
		fmt.Println()
	}

	fmt.Println("IMPORTANT: Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
