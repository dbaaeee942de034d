// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a color palette. All colors are ANSI 256-color codes.
type Theme struct {
	Name string

	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Message authors.
	VisitorAccent lipgloss.Color
	AgentAccent   lipgloss.Color
	SystemAccent  lipgloss.Color
	ErrorAccent   lipgloss.Color

	// Unread badge on the conversation list.
	BadgeForeground lipgloss.Color
	BadgeBackground lipgloss.Color

	StatusActive lipgloss.Color
	StatusClosed lipgloss.Color

	LinkForeground            lipgloss.Color
	SearchHighlightBackground lipgloss.Color
	FocusAccent               lipgloss.Color
}

// StatusColor returns the color for a conversation status, FaintText
// for anything unrecognized.
func (theme Theme) StatusColor(status string) lipgloss.Color {
	switch status {
	case "active":
		return theme.StatusActive
	case "closed":
		return theme.StatusClosed
	default:
		return theme.FaintText
	}
}

// SenderColor returns the accent for a message sender.
func (theme Theme) SenderColor(sender string) lipgloss.Color {
	switch sender {
	case "visitor":
		return theme.VisitorAccent
	case "agent":
		return theme.AgentAccent
	default:
		return theme.SystemAccent
	}
}

// DarkTheme suits terminals with a dark background.
var DarkTheme = Theme{
	Name: "dark",

	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	VisitorAccent: lipgloss.Color("75"),  // blue
	AgentAccent:   lipgloss.Color("114"), // green
	SystemAccent:  lipgloss.Color("245"),
	ErrorAccent:   lipgloss.Color("196"),

	BadgeForeground: lipgloss.Color("255"),
	BadgeBackground: lipgloss.Color("161"),

	StatusActive: lipgloss.Color("114"),
	StatusClosed: lipgloss.Color("245"),

	LinkForeground:            lipgloss.Color("75"),
	SearchHighlightBackground: lipgloss.Color("58"),
	FocusAccent:               lipgloss.Color("220"),
}

// LightTheme suits terminals with a light background.
var LightTheme = Theme{
	Name: "light",

	NormalText: lipgloss.Color("235"),
	FaintText:  lipgloss.Color("243"),

	SelectedBackground: lipgloss.Color("254"),
	SelectedForeground: lipgloss.Color("232"),

	HeaderForeground: lipgloss.Color("232"),
	BorderColor:      lipgloss.Color("250"),
	HelpText:         lipgloss.Color("244"),

	VisitorAccent: lipgloss.Color("25"),
	AgentAccent:   lipgloss.Color("28"),
	SystemAccent:  lipgloss.Color("243"),
	ErrorAccent:   lipgloss.Color("160"),

	BadgeForeground: lipgloss.Color("255"),
	BadgeBackground: lipgloss.Color("161"),

	StatusActive: lipgloss.Color("28"),
	StatusClosed: lipgloss.Color("243"),

	LinkForeground:            lipgloss.Color("25"),
	SearchHighlightBackground: lipgloss.Color("229"),
	FocusAccent:               lipgloss.Color("166"),
}

// ThemeByName returns the named theme.
func ThemeByName(name string) (Theme, error) {
	switch name {
	case DarkTheme.Name:
		return DarkTheme, nil
	case LightTheme.Name:
		return LightTheme, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q (want dark or light)", name)
	}
}

// Toggle returns the other built-in theme.
func (theme Theme) Toggle() Theme {
	if theme.Name == LightTheme.Name {
		return DarkTheme
	}
	return LightTheme
}
