package ordinal

import "github.com/akaitrade/node/common"

var log = common.GetLoggerEntry("ordinal")
