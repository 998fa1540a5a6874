// Package protocol implements the line-oriented command set exchanged between
// the master and its workers:
//
//    Task v1,v2,...,vn
//    Answer true|false
//    Terminate
package protocol

import (
    "errors"
    "fmt"
    "strconv"
    "strings"
)

var (
    ErrEmptyLine      = errors.New("empty command line")
    ErrUnknownCommand = errors.New("unknown command")
    ErrBadAnswer      = errors.New("malformed answer")
)

// Command is one decoded protocol line.
type Command struct {
    Kind Kind
    // Values is the chunk carried by a Task.
    Values []int64
    // Malformed counts Task tokens that did not parse as integers and were dropped.
    Malformed int
    // Composite is the verdict carried by an Answer.
    Composite bool
}

func Task(values []int64) Command { return Command{Kind: KindTask, Values: values} }
func Answer(composite bool) Command { return Command{Kind: KindAnswer, Composite: composite} }
func Terminate() Command { return Command{Kind: KindTerminate} }

// MarshalText encodes the command as a single line without terminator.
func (c Command) MarshalText() ([]byte, error) {
    switch c.Kind {
    case KindTask:
        b := []byte(wordTask)
        for i, v := range c.Values {
            if i == 0 { b = append(b, ' ') } else { b = append(b, ',') }
            b = strconv.AppendInt(b, v, 10)
        }
        return b, nil
    case KindAnswer:
        return []byte(wordAnswer + " " + strconv.FormatBool(c.Composite)), nil
    case KindTerminate:
        return []byte(wordTerminate), nil
    default:
        return nil, fmt.Errorf("%w: kind %d", ErrUnknownCommand, c.Kind)
    }
}

func (c Command) String() string {
    b, err := c.MarshalText()
    if err != nil { return c.Kind.String() }
    return string(b)
}

// Parse decodes one line. Keywords are case-insensitive. Task tokens that are
// not integers are dropped and counted in Malformed instead of failing the
// whole command.
func Parse(line string) (Command, error) {
    line = strings.TrimSpace(line)
    if line == "" { return Command{}, ErrEmptyLine }
    word, rest, _ := strings.Cut(line, " ")
    rest = strings.TrimSpace(rest)
    switch {
    case strings.EqualFold(word, wordTask):
        return parseTask(rest), nil
    case strings.EqualFold(word, wordAnswer):
        v, err := parseBool(rest)
        if err != nil { return Command{}, err }
        return Answer(v), nil
    case strings.EqualFold(word, wordTerminate):
        return Terminate(), nil
    default:
        return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
    }
}

func parseTask(payload string) Command {
    cmd := Command{Kind: KindTask}
    if payload == "" { return cmd }
    tokens := strings.Split(payload, ",")
    cmd.Values = make([]int64, 0, len(tokens))
    for _, tok := range tokens {
        v, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
        if err != nil { cmd.Malformed++; continue }
        cmd.Values = append(cmd.Values, v)
    }
    return cmd
}

func parseBool(s string) (bool, error) {
    switch {
    case strings.EqualFold(s, "true"):
        return true, nil
    case strings.EqualFold(s, "false"):
        return false, nil
    default:
        return false, fmt.Errorf("%w: %q", ErrBadAnswer, s)
    }
}
