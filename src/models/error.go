package models

import "fmt"

var ErrUnknownField = fmt.Errorf("unknown bar field")
