package main

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
)

type createUserInput struct {
	Email          string `validate:"required,email"`
	FullName       string `validate:"required"`
	Password       string `validate:"required,min=8"`
	Role           string `validate:"required,oneof=ADMIN DOCTOR STAFF STUDENT"`
	Specialization string
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage clinic accounts",
	}

	in := createUserInput{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account, with a doctor or student profile when the role needs one",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := models.ParseRole(in.Role)
			if err != nil {
				return err
			}
			in.Role = string(role)
			if err := validator.New().Struct(in); err != nil {
				return err
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user := &models.User{
				Email:        strings.ToLower(in.Email),
				PasswordHash: string(hash),
				FullName:     in.FullName,
				Role:         role,
				Active:       true,
			}
			ctx := cmd.Context()
			if err := repository.NewUserRepository(e.db).Create(ctx, user); err != nil {
				return err
			}

			switch user.Role {
			case models.RoleDoctor:
				err = repository.NewDoctorRepository(e.db).Create(ctx, &models.Doctor{
					ID:             user.ID,
					Name:           user.FullName,
					Specialization: in.Specialization,
					Email:          user.Email,
				})
			case models.RoleStudent:
				first, last, _ := strings.Cut(user.FullName, " ")
				err = repository.NewStudentRepository(e.db).Create(ctx, &models.Student{
					ID:        user.ID,
					FirstName: first,
					LastName:  last,
					Email:     &user.Email,
				})
			}
			if err != nil {
				return fmt.Errorf("create %s profile: %w", strings.ToLower(in.Role), err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %s %s (%s)\n", user.Role, user.Email, user.ID)
			if user.Role.HasProfile() {
				fmt.Fprintf(out, "linked %s profile %s\n", strings.ToLower(string(user.Role)), user.ID)
			}
			return nil
		},
	}
	createCmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	createCmd.Flags().StringVar(&in.FullName, "name", "", "Full name")
	createCmd.Flags().StringVar(&in.Password, "password", "", "Initial password (min 8 characters)")
	createCmd.Flags().StringVar(&in.Role, "role", string(models.RoleAdmin), "ADMIN, DOCTOR, STAFF or STUDENT")
	createCmd.Flags().StringVar(&in.Specialization, "specialization", "", "Doctor specialization")

	cmd.AddCommand(createCmd)
	return cmd
}
