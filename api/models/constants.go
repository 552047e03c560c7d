package models

var Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const GeneratedPasswordLength = 10
const ElectionIDLength = 12
