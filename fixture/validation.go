// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fixture

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

// isValidUUID checks if the string is a canonical UUID.
func isValidUUID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == strings.ToLower(id)
}

// isValidEmail checks if the string is a bare email address.
func isValidEmail(email string) bool {
	a, err := mail.ParseAddress(email)
	return err == nil && a.Address == email
}

// validateStringLen checks if the string length is within the limit.
func validateStringLen(s string, max int, name string) error {
	if len(s) > max {
		return fmt.Errorf("%s too long (max %d chars)", name, max)
	}
	return nil
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name required")
	}
	return validateStringLen(s, maxNameLength, "name")
}

func validateItems(items []Item) error {
	if len(items) > maxItems {
		return fmt.Errorf("too many items (max %d)", maxItems)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("item %d has no name", i)
		}
		if err := validateStringLen(it.Name, maxNameLength, "item name"); err != nil {
			return err
		}
		for _, v := range []float64{it.X, it.Y} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("item %d has invalid position", i)
			}
		}
	}
	return nil
}
