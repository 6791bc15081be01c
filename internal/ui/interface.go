package ui

// Confirmer asks the user a yes/no question.
// This allows the terminal dialog to be replaced in tests
type Confirmer func(message string) (bool, error)
