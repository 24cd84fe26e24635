// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package logging

import (
	"strconv"
	"strings"

	"cloudeng.io/datetime"
)

// Date is a datetime.CalendarDate that is logged in its string form.
type Date datetime.CalendarDate

func (ld Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(datetime.CalendarDate(ld).String())), nil
}

func (ld *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	return (*datetime.CalendarDate)(ld).Parse(strings.Trim(string(data), `"`))
}
