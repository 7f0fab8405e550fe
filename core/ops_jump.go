package core

func init() {
	registerJumpCondition(0, "JNZ")
	registerJumpCondition(1, "JZ")
	registerJumpCondition(2, "JNC")
	registerJumpCondition(3, "JC")
	registerJumpCondition(4, "JN")
	registerJumpCondition(5, "JGE")
	registerJumpCondition(6, "JL")
	registerJumpCondition(7, "JMP")
}
