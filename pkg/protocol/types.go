package protocol

// Kind is the command carried by one protocol line.
type Kind uint8

const (
    KindUnknown   Kind = iota
    KindTask           // master -> worker: one chunk
    KindAnswer         // worker -> master: chunk verdict
    KindTerminate      // master -> worker: stop, no reply
)

// Wire keywords. Parsing matches them case-insensitively.
const (
    wordTask      = "Task"
    wordAnswer    = "Answer"
    wordTerminate = "Terminate"
)

func (k Kind) String() string {
    switch k {
    case KindTask:
        return wordTask
    case KindAnswer:
        return wordAnswer
    case KindTerminate:
        return wordTerminate
    default:
        return "Unknown"
    }
}
