package main

import (
	"fmt"
	"strings"
)

type spamCan struct {
	offset        int
	spamIncrement int
	maxSize       int
	currentSpam   []string
	lable         string
}

func newSpamCan(increment int, lable string, maxSize uint) *spamCan {
	return &spamCan{
		offset:        33,
		currentSpam:   make([]string, 0),
		spamIncrement: increment,
		maxSize:       int(maxSize),
		lable:         lable,
	}
}

func (spam *spamCan) nextOffset() int {
	if spam.offset < 125 {
		spam.offset++
	} else {
		spam.offset = 33
	}

	return spam.offset
}

func (spam *spamCan) getSpam() string {
	for i := 0; i < spam.spamIncrement; i++ {
		nextChar := string(byte(spam.nextOffset()))
		spam.currentSpam = append(spam.currentSpam, nextChar)
	}
	if spam.maxSize > 0 && len(spam.currentSpam) > spam.maxSize {
		spam.currentSpam = spam.currentSpam[len(spam.currentSpam)-spam.maxSize:]
	}
	return fmt.Sprintf("%s - %s", spam.lable, strings.Join(spam.currentSpam, ""))
}
