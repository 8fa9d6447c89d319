package ir

// Version is the triggertree release reported by the CLI.
const Version = "0.1.0"
