// Package main provides the TCP server for CommitKV.
package main

import (
	"strings"

	"github.com/nickyhof/CommitKV/wire"
)

// Each request is one line. Besides queries the protocol knows:
//
//	AUTH BASIC <user> <password>
//	AUTH JWT <token>
//	USE <database>
//	quit | exit
//
// Each reply is one wire.Response encoded as JSON on a single line.

type commandKind int

const (
	queryCommand commandKind = iota
	authCommand
	useCommand
	quitCommand
)

// classify splits a request line into its command kind and argument text.
func classify(line string) (commandKind, string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return queryCommand, line
	}

	switch strings.ToUpper(fields[0]) {
	case "QUIT", "EXIT":
		if len(fields) == 1 {
			return quitCommand, ""
		}
	case "AUTH":
		return authCommand, strings.TrimSpace(line[len(fields[0]):])
	case "USE":
		return useCommand, strings.TrimSpace(line[len(fields[0]):])
	}
	return queryCommand, line
}

func errorResponse(status wire.Status, message string) wire.Response {
	return wire.NewError(status, message).Response()
}
