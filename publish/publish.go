// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package publish mirrors the board identity into a redis hash.
package publish

import (
	"fmt"
	"sort"
	"strconv"

	redigo "github.com/garyburd/redigo/redis"
	"github.com/platinasystems/fpgav3/board"
)

const DefaultHash = "fpgav3"

// Fields returns the same variables as the shell profile.
func Fields(info board.Info, sn string) map[string]string {
	m := map[string]string{
		"FPGAV3_VER": info.Version(),
		"FPGAV3_HW":  info.Type.String(),
	}
	if len(sn) > 0 {
		m["FPGAV3_SN"] = sn
	}
	if info.ID < 16 {
		m["FPGAV3_ID"] = strconv.FormatUint(uint64(info.ID), 10)
	}
	return m
}

// Publish sets each field of hash on the redis server at addr.
func Publish(addr, hash string, fields map[string]string) error {
	c, err := redigo.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer c.Close()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err = c.Do("HSET", hash, k, fields[k]); err != nil {
			return fmt.Errorf("HSET %s %s: %w", hash, k, err)
		}
	}
	return nil
}
