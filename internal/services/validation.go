package services

import "point-service/internal/models"

// IsValidAmount reports whether amount may be charged or used at all.
func IsValidAmount(amount int64) bool {
	return amount > 0
}

// IsExceedingMax reports whether charging amount would push the balance past MaxPoint.
func IsExceedingMax(current, amount int64) bool {
	return current > models.MaxPoint-amount
}

// HasInsufficientBalance reports whether current cannot cover amount.
func HasInsufficientBalance(current, amount int64) bool {
	return current < amount
}
