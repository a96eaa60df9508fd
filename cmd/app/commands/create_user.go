package commands

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/allisson/users/internal/errors"
	"github.com/allisson/users/internal/user/usecase"
)

// RunCreateUser registers a user from the command line and prints the stored record.
// Validation failures are printed field by field before the error is returned.
func RunCreateUser(
	ctx context.Context,
	userUseCase usecase.UseCase,
	logger *slog.Logger,
	input usecase.CreateUserInput,
	format string,
	io IOTuple,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("creating user", slog.String("email", input.Email))

	output, err := userUseCase.Create(ctx, input)
	if err != nil {
		var fieldErrs interface{ FieldErrors() []apperrors.FieldError }
		if apperrors.As(err, &fieldErrs) {
			for _, field := range fieldErrs.FieldErrors() {
				_, _ = fmt.Fprintf(io.Writer, "%s: %s\n", field.Name, field.Reason)
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("user created", slog.String("user_id", output.ID.String()))

	if format == FormatJSON {
		return outputCreateUserJSON(output, io)
	}
	outputCreateUserText(output, io)
	return nil
}

func outputCreateUserText(output *usecase.UserOutput, io IOTuple) {
	_, _ = fmt.Fprintln(io.Writer, "User created successfully")
	_, _ = fmt.Fprintf(io.Writer, "ID:         %s\n", output.ID)
	_, _ = fmt.Fprintf(io.Writer, "Name:       %s\n", output.Name)
	_, _ = fmt.Fprintf(io.Writer, "Email:      %s\n", output.Email)
	_, _ = fmt.Fprintf(io.Writer, "CPF:        %s\n", output.CPF)
	_, _ = fmt.Fprintf(io.Writer, "Profession: %s\n", output.Profession)
	_, _ = fmt.Fprintf(io.Writer, "Created at: %s\n", output.CreatedAt)
}

func outputCreateUserJSON(output *usecase.UserOutput, io IOTuple) error {
	return writeJSON(io.Writer, map[string]any{
		"id":         output.ID.String(),
		"name":       output.Name,
		"email":      output.Email,
		"cpf":        output.CPF,
		"profession": output.Profession,
		"created_at": output.CreatedAt,
	})
}
